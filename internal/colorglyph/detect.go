package colorglyph

// IsEmoji reports whether r can be drawn as an emoji, either by default or
// when followed by U+FE0F.
func IsEmoji(r rune) bool {
	return IsEmojiPresentation(r) || isTextPresentationEmoji(r)
}

// IsEmojiPresentation reports whether r defaults to emoji presentation, so
// it should be drawn from a color font even when a text font also covers
// it.
func IsEmojiPresentation(r rune) bool {
	switch {
	case r >= 0x1F300 && r <= 0x1F5FF: // Misc Symbols and Pictographs
		return !IsEmojiModifier(r)
	case r >= 0x1F600 && r <= 0x1F64F: // Emoticons
		return true
	case r >= 0x1F680 && r <= 0x1F6FF: // Transport and Map
		return true
	case r >= 0x1F900 && r <= 0x1F9FF: // Supplemental Symbols and Pictographs
		return true
	case r >= 0x1FA70 && r <= 0x1FAFF: // Symbols and Pictographs Extended-A
		return true
	case IsRegionalIndicator(r):
		return true
	case r >= 0x2600 && r <= 0x27BF:
		return presentationDingbat(r)
	case r == 0x2B50, r == 0x2B55, r == 0x2B1B, r == 0x2B1C:
		return true
	case r == 0x231A, r == 0x231B, r == 0x23E9, r == 0x23EA, r == 0x23EB, r == 0x23EC, r == 0x23F0, r == 0x23F3:
		return true
	}
	return false
}

// presentationDingbat covers the Emoji_Presentation=Yes subset of the
// Misc Symbols and Dingbats blocks. The rest of those blocks render as text.
func presentationDingbat(r rune) bool {
	switch r {
	case 0x2614, 0x2615, 0x2648, 0x2649, 0x264A, 0x264B, 0x264C, 0x264D,
		0x264E, 0x264F, 0x2650, 0x2651, 0x2652, 0x2653, 0x267F, 0x2693,
		0x26A1, 0x26AA, 0x26AB, 0x26BD, 0x26BE, 0x26C4, 0x26C5, 0x26CE,
		0x26D4, 0x26EA, 0x26F2, 0x26F3, 0x26F5, 0x26FA, 0x26FD,
		0x2705, 0x270A, 0x270B, 0x2728, 0x274C, 0x274E, 0x2753, 0x2754,
		0x2755, 0x2757, 0x2795, 0x2796, 0x2797, 0x27B0, 0x27BF:
		return true
	}
	return false
}

// isTextPresentationEmoji covers Emoji=Yes, Emoji_Presentation=No
// characters. They render as text unless followed by U+FE0F.
func isTextPresentationEmoji(r rune) bool {
	switch {
	case r >= 0x2600 && r <= 0x27BF:
		return true
	case r == 0x203C, r == 0x2049, r == 0x2122, r == 0x2139, r == 0x24C2:
		return true
	case r >= 0x2194 && r <= 0x2199, r == 0x21A9, r == 0x21AA:
		return true
	case r >= 0x23E9 && r <= 0x23FA:
		return true
	case r == 0x00A9, r == 0x00AE, r == 0x3030, r == 0x303D, r == 0x3297, r == 0x3299:
		return true
	case r >= 0x2934 && r <= 0x2935, r >= 0x2B05 && r <= 0x2B07:
		return true
	}
	return false
}

// IsEmojiModifier reports whether r is a Fitzpatrick skin tone modifier.
func IsEmojiModifier(r rune) bool {
	return r >= 0x1F3FB && r <= 0x1F3FF
}

// IsEmojiModifierBase reports whether a skin tone modifier may follow r.
func IsEmojiModifierBase(r rune) bool {
	switch {
	case r >= 0x1F466 && r <= 0x1F469: // boy, girl, man, woman
		return true
	case r >= 0x1F46E && r <= 0x1F478:
		return true
	case r == 0x1F47C, r == 0x1F4AA, r == 0x1F57A, r == 0x1F590, r == 0x1F6A3, r == 0x1F6C0, r == 0x1F926:
		return true
	case r >= 0x1F481 && r <= 0x1F487:
		return true
	case r >= 0x1F574 && r <= 0x1F575, r >= 0x1F595 && r <= 0x1F596:
		return true
	case r >= 0x1F645 && r <= 0x1F64F: // gestures
		return true
	case r >= 0x1F6B4 && r <= 0x1F6B6:
		return true
	case r >= 0x1F918 && r <= 0x1F91F: // hand signs
		return true
	case r >= 0x1F930 && r <= 0x1F939, r >= 0x1F93C && r <= 0x1F93E:
		return true
	case r >= 0x1F442 && r <= 0x1F443, r >= 0x1F446 && r <= 0x1F450:
		return true
	case r == 0x261D, r == 0x26F9, r >= 0x270A && r <= 0x270D:
		return true
	}
	return false
}

// IsZWJ reports whether r is the zero-width joiner.
func IsZWJ(r rune) bool {
	return r == 0x200D
}

// IsRegionalIndicator reports whether r is a regional indicator letter.
// Two of them form a flag.
func IsRegionalIndicator(r rune) bool {
	return r >= 0x1F1E6 && r <= 0x1F1FF
}

// IsVariationSelector reports whether r is U+FE0E (text presentation) or
// U+FE0F (emoji presentation).
func IsVariationSelector(r rune) bool {
	return r == 0xFE0E || r == 0xFE0F
}

// IsTextPresentation reports whether r is the text variation selector.
func IsTextPresentation(r rune) bool {
	return r == 0xFE0E
}

// IsEmojiVariation reports whether r is the emoji variation selector.
func IsEmojiVariation(r rune) bool {
	return r == 0xFE0F
}

// IsKeycapBase reports whether r can start a keycap sequence.
func IsKeycapBase(r rune) bool {
	return (r >= '0' && r <= '9') || r == '#' || r == '*'
}

// IsCombiningEnclosingKeycap reports whether r is the keycap mark.
func IsCombiningEnclosingKeycap(r rune) bool {
	return r == 0x20E3
}

// IsTagCharacter reports whether r is a tag used in subdivision flags.
func IsTagCharacter(r rune) bool {
	return r >= 0xE0020 && r <= 0xE007E
}

// IsCancelTag reports whether r ends a tag sequence.
func IsCancelTag(r rune) bool {
	return r == 0xE007F
}

// IsBlackFlag reports whether r is the base of subdivision flag sequences.
func IsBlackFlag(r rune) bool {
	return r == 0x1F3F4
}

// IsJoiner reports whether r extends the preceding character instead of
// starting a new one: zero-width joiner, variation selectors, skin tone
// modifiers, the keycap mark and tag characters.
func IsJoiner(r rune) bool {
	return IsZWJ(r) || IsVariationSelector(r) || IsEmojiModifier(r) ||
		IsCombiningEnclosingKeycap(r) || IsTagCharacter(r) || IsCancelTag(r)
}
