package colorglyph

// SequenceType indicates the type of emoji sequence.
type SequenceType int

const (
	// SequenceSimple is a single emoji character.
	SequenceSimple SequenceType = iota

	// SequenceZWJ is several emoji joined by U+200D (family, profession).
	SequenceZWJ

	// SequenceFlag is a country flag formed by two regional indicators.
	SequenceFlag

	// SequenceKeycap is a digit, # or * followed by U+20E3.
	SequenceKeycap

	// SequenceModified is a base emoji with a skin tone modifier.
	SequenceModified

	// SequenceTag is a subdivision flag: U+1F3F4, tags, U+E007F.
	SequenceTag

	// SequencePresentation is a character followed by U+FE0F.
	SequencePresentation
)

var sequenceTypeNames = [...]string{
	SequenceSimple:       "Simple",
	SequenceZWJ:          "ZWJ",
	SequenceFlag:         "Flag",
	SequenceKeycap:       "Keycap",
	SequenceModified:     "Modified",
	SequenceTag:          "Tag",
	SequencePresentation: "Presentation",
}

// String returns the string name of the sequence type.
func (t SequenceType) String() string {
	if t >= 0 && int(t) < len(sequenceTypeNames) {
		return sequenceTypeNames[t]
	}
	return "Unknown"
}

// Sequence is one emoji, possibly several codepoints long.
type Sequence struct {
	// Start is the index of the first codepoint in the parsed runes.
	Start int

	Codepoints []rune
	Type       SequenceType

	// BaseCodepoint is the first codepoint of the sequence.
	BaseCodepoint rune

	// Modifier is the skin tone modifier, zero when absent.
	Modifier rune
}

// Len returns the number of codepoints in the sequence.
func (s Sequence) Len() int { return len(s.Codepoints) }

// End returns the index just past the sequence in the parsed runes.
func (s Sequence) End() int { return s.Start + len(s.Codepoints) }

// Colored reports whether the sequence should come from a color font. A
// lone text-default character such as U+2764 stays text.
func (s Sequence) Colored() bool {
	return s.Type != SequenceSimple || IsEmojiPresentation(s.BaseCodepoint)
}

// Parse finds the emoji sequences in runes, in order. Characters that are
// not part of an emoji are skipped.
func Parse(runes []rune) []Sequence {
	var sequences []Sequence
	for i := 0; i < len(runes); {
		seq, n := parseSequenceAt(runes[i:])
		if n == 0 {
			i++
			continue
		}
		seq.Start = i
		sequences = append(sequences, seq)
		i += n
	}
	return sequences
}

func parseSequenceAt(runes []rune) (Sequence, int) {
	r := runes[0]

	if IsRegionalIndicator(r) && len(runes) >= 2 && IsRegionalIndicator(runes[1]) {
		return Sequence{Codepoints: runes[:2], Type: SequenceFlag, BaseCodepoint: r}, 2
	}
	if IsBlackFlag(r) {
		if seq, n := parseTagSequenceAt(runes); n > 0 {
			return seq, n
		}
	}
	if IsKeycapBase(r) {
		return parseKeycapSequenceAt(runes)
	}
	if !IsEmoji(r) {
		return Sequence{}, 0
	}
	return parseExtendedSequenceAt(runes)
}

func parseTagSequenceAt(runes []rune) (Sequence, int) {
	i := 1
	for i < len(runes) && IsTagCharacter(runes[i]) {
		i++
	}
	if i > 1 && i < len(runes) && IsCancelTag(runes[i]) {
		i++
		return Sequence{Codepoints: runes[:i], Type: SequenceTag, BaseCodepoint: runes[0]}, i
	}
	return Sequence{}, 0
}

func parseKeycapSequenceAt(runes []rune) (Sequence, int) {
	i := 1
	if i < len(runes) && IsEmojiVariation(runes[i]) {
		i++
	}
	if i < len(runes) && IsCombiningEnclosingKeycap(runes[i]) {
		i++
		return Sequence{Codepoints: runes[:i], Type: SequenceKeycap, BaseCodepoint: runes[0]}, i
	}
	return Sequence{}, 0
}

// parseExtendedSequenceAt reads a base emoji with its optional variation
// selector, skin tone and ZWJ continuations. A base followed by U+FE0E is
// text and yields no sequence.
func parseExtendedSequenceAt(runes []rune) (Sequence, int) {
	base := runes[0]
	i := 1
	seqType := SequenceSimple
	var modifier rune

	if i < len(runes) && IsVariationSelector(runes[i]) {
		if IsTextPresentation(runes[i]) {
			return Sequence{}, 0
		}
		seqType = SequencePresentation
		i++
	}
	if i < len(runes) && IsEmojiModifier(runes[i]) && IsEmojiModifierBase(base) {
		modifier = runes[i]
		seqType = SequenceModified
		i++
	}

	joined := false
	for i+1 < len(runes) && IsZWJ(runes[i]) {
		n := parseAfterZWJ(runes[i+1:])
		if n == 0 {
			break
		}
		i += 1 + n
		joined = true
	}
	if joined {
		seqType = SequenceZWJ
	}

	return Sequence{
		Codepoints:    runes[:i],
		Type:          seqType,
		BaseCodepoint: base,
		Modifier:      modifier,
	}, i
}

func parseAfterZWJ(runes []rune) int {
	r := runes[0]
	if !IsEmoji(r) && !IsEmojiModifier(r) {
		return 0
	}
	i := 1
	if i < len(runes) && IsVariationSelector(runes[i]) {
		if IsTextPresentation(runes[i]) {
			return 0
		}
		i++
	}
	if i < len(runes) && IsEmojiModifier(runes[i]) && IsEmojiModifierBase(r) {
		i++
	}
	return i
}
