package x11layout

import (
	"unicode"
	"unicode/utf8"
)

const (
	keysymUnicodeOffset = 0x01000000
	keysymUnicodeMin    = 0x01000100
	keysymUnicodeMax    = 0x0110ffff

	keysymDeadFirst = 0xfe50
	keysymDeadLast  = 0xfe8f
)

// KeysymToString returns the text a keysym types, or "" for NoSymbol, dead
// keys, function keys and control characters.
func KeysymToString(ks uint32) string {
	r := KeysymToRune(ks)
	if r == 0 || unicode.IsControl(r) || !utf8.ValidRune(r) {
		return ""
	}
	return string(r)
}

// KeysymToRune maps ks to a Unicode code point, or 0 when ks has none.
func KeysymToRune(ks uint32) rune {
	switch {
	case ks >= 0x20 && ks <= 0x7e, ks >= 0xa0 && ks <= 0xff:
		return rune(ks)
	case ks >= keysymUnicodeMin && ks <= keysymUnicodeMax:
		return rune(ks - keysymUnicodeOffset)
	case ks >= keysymDeadFirst && ks <= keysymDeadLast:
		return 0
	case ks >= 0xffb0 && ks <= 0xffb9:
		return rune('0' + ks - 0xffb0)
	case ks >= 0x6c0 && ks <= 0x6df:
		return cyrillicLower[ks-0x6c0]
	case ks >= 0x6e0 && ks <= 0x6ff:
		return cyrillicUpper[ks-0x6e0]
	case ks >= 0x7c1 && ks <= 0x7d1:
		return rune(ks - 0x7c1 + 0x391)
	case ks >= 0x7d4 && ks <= 0x7d9:
		return rune(ks - 0x7d4 + 0x3a4)
	case ks >= 0x7e1 && ks <= 0x7f1:
		return rune(ks - 0x7e1 + 0x3b1)
	case ks >= 0x7f4 && ks <= 0x7f9:
		return rune(ks - 0x7f4 + 0x3c4)
	case ks >= 0xce0 && ks <= 0xcfa:
		return rune(ks - 0xce0 + 0x5d0)
	case ks >= 0x5c1 && ks <= 0x5da:
		return rune(ks - 0x5c1 + 0x621)
	case ks >= 0x5e0 && ks <= 0x5f2:
		return rune(ks - 0x5e0 + 0x640)
	case ks >= 0xda1 && ks <= 0xdda, ks >= 0xddf && ks <= 0xded, ks >= 0xdf0 && ks <= 0xdf9:
		return rune(ks + 0x0e01 - 0xda1)
	case ks >= 0xea1 && ks <= 0xed3:
		return rune(ks - 0xea1 + 0x3131)
	case ks >= 0xed4 && ks <= 0xeee:
		return rune(ks - 0xed4 + 0x11a8)
	}
	return legacyKeysyms[ks]
}

var (
	cyrillicLower = []rune("юабцдефгхийклмнопярстужвьызшэщчъ")
	cyrillicUpper = []rune("ЮАБЦДЕФГХИЙКЛМНОПЯРСТУЖВЬЫЗШЭЩЧЪ")
)

// legacyKeysyms covers the pre-Unicode keysym sets that are not contiguous
// with their Unicode block, plus keypad and editing keys.
var legacyKeysyms = map[uint32]rune{
	// editing keys; filtered as control characters
	0xff08: '\b', 0xff09: '\t', 0xff0d: '\r', 0xff1b: 0x1b, 0xffff: 0x7f,
	0xff89: '\t', 0xff8d: '\r',

	// keypad
	0xff80: ' ', 0xffaa: '*', 0xffab: '+', 0xffac: ',', 0xffad: '-',
	0xffae: '.', 0xffaf: '/', 0xffbd: '=',

	0x20ac: '€',

	// Latin-2
	0x1a1: 'Ą', 0x1a2: '˘', 0x1a3: 'Ł', 0x1a5: 'Ľ', 0x1a6: 'Ś', 0x1a9: 'Š',
	0x1aa: 'Ş', 0x1ab: 'Ť', 0x1ac: 'Ź', 0x1ae: 'Ž', 0x1af: 'Ż', 0x1b1: 'ą',
	0x1b2: '˛', 0x1b3: 'ł', 0x1b5: 'ľ', 0x1b6: 'ś', 0x1b7: 'ˇ', 0x1b9: 'š',
	0x1ba: 'ş', 0x1bb: 'ť', 0x1bc: 'ź', 0x1bd: '˝', 0x1be: 'ž', 0x1bf: 'ż',
	0x1c0: 'Ŕ', 0x1c3: 'Ă', 0x1c5: 'Ĺ', 0x1c6: 'Ć', 0x1c8: 'Č', 0x1ca: 'Ę',
	0x1cc: 'Ě', 0x1cf: 'Ď', 0x1d0: 'Đ', 0x1d1: 'Ń', 0x1d2: 'Ň', 0x1d5: 'Ő',
	0x1d8: 'Ř', 0x1d9: 'Ů', 0x1db: 'Ű', 0x1de: 'Ţ', 0x1e0: 'ŕ', 0x1e3: 'ă',
	0x1e5: 'ĺ', 0x1e6: 'ć', 0x1e8: 'č', 0x1ea: 'ę', 0x1ec: 'ě', 0x1ef: 'ď',
	0x1f0: 'đ', 0x1f1: 'ń', 0x1f2: 'ň', 0x1f5: 'ő', 0x1f8: 'ř', 0x1f9: 'ů',
	0x1fb: 'ű', 0x1fe: 'ţ', 0x1ff: '˙',

	// Latin-3
	0x2a1: 'Ħ', 0x2a6: 'Ĥ', 0x2a9: 'İ', 0x2ab: 'Ğ', 0x2ac: 'Ĵ', 0x2b1: 'ħ',
	0x2b6: 'ĥ', 0x2b9: 'ı', 0x2bb: 'ğ', 0x2bc: 'ĵ', 0x2c5: 'Ċ', 0x2c6: 'Ĉ',
	0x2d5: 'Ġ', 0x2d8: 'Ĝ', 0x2dd: 'Ŭ', 0x2de: 'Ŝ', 0x2e5: 'ċ', 0x2e6: 'ĉ',
	0x2f5: 'ġ', 0x2f8: 'ĝ', 0x2fd: 'ŭ', 0x2fe: 'ŝ',

	// Latin-4
	0x3a2: 'ĸ', 0x3a3: 'Ŗ', 0x3a5: 'Ĩ', 0x3a6: 'Ļ', 0x3aa: 'Ē', 0x3ab: 'Ģ',
	0x3ac: 'Ŧ', 0x3b3: 'ŗ', 0x3b5: 'ĩ', 0x3b6: 'ļ', 0x3ba: 'ē', 0x3bb: 'ģ',
	0x3bc: 'ŧ', 0x3bd: 'Ŋ', 0x3bf: 'ŋ', 0x3c0: 'Ā', 0x3c7: 'Į', 0x3cc: 'Ė',
	0x3cf: 'Ī', 0x3d1: 'Ņ', 0x3d2: 'Ō', 0x3d3: 'Ķ', 0x3d9: 'Ų', 0x3dd: 'Ũ',
	0x3de: 'Ū', 0x3e0: 'ā', 0x3e7: 'į', 0x3ec: 'ė', 0x3ef: 'ī', 0x3f1: 'ņ',
	0x3f2: 'ō', 0x3f3: 'ķ', 0x3f9: 'ų', 0x3fd: 'ũ', 0x3fe: 'ū',

	// Latin-9
	0x13bc: 'Œ', 0x13bd: 'œ', 0x13be: 'Ÿ',

	// Arabic punctuation
	0x5ac: '،', 0x5bb: '؛', 0x5bf: '؟',

	// Cyrillic outside the KOI8 block
	0x6a1: 'ђ', 0x6a2: 'ѓ', 0x6a3: 'ё', 0x6a4: 'є', 0x6a5: 'ѕ', 0x6a6: 'і',
	0x6a7: 'ї', 0x6a8: 'ј', 0x6a9: 'љ', 0x6aa: 'њ', 0x6ab: 'ћ', 0x6ac: 'ќ',
	0x6ad: 'ґ', 0x6ae: 'ў', 0x6af: 'џ', 0x6b0: '№', 0x6b1: 'Ђ', 0x6b2: 'Ѓ',
	0x6b3: 'Ё', 0x6b4: 'Є', 0x6b5: 'Ѕ', 0x6b6: 'І', 0x6b7: 'Ї', 0x6b8: 'Ј',
	0x6b9: 'Љ', 0x6ba: 'Њ', 0x6bb: 'Ћ', 0x6bc: 'Ќ', 0x6bd: 'Ґ', 0x6be: 'Ў',
	0x6bf: 'Џ',

	// Greek accented and final sigma
	0x7a1: 'Ά', 0x7a2: 'Έ', 0x7a3: 'Ή', 0x7a4: 'Ί', 0x7a5: 'Ϊ', 0x7a7: 'Ό',
	0x7a8: 'Ύ', 0x7a9: 'Ϋ', 0x7ab: 'Ώ', 0x7ae: '΅', 0x7af: '―', 0x7b1: 'ά',
	0x7b2: 'έ', 0x7b3: 'ή', 0x7b4: 'ί', 0x7b5: 'ϊ', 0x7b6: 'ΐ', 0x7b7: 'ό',
	0x7b8: 'ύ', 0x7b9: 'ϋ', 0x7ba: 'ΰ', 0x7bb: 'ώ', 0x7d2: 'Σ', 0x7f2: 'σ',
	0x7f3: 'ς',

	// Hebrew
	0xcdf: '‗',

	// Latin-8
	0x12a1: 'Ḃ', 0x12a2: 'ḃ', 0x12a6: 'Ḋ', 0x12a8: 'Ẁ', 0x12aa: 'Ẃ', 0x12ab: 'ḋ',
	0x12ac: 'Ỳ', 0x12b0: 'Ḟ', 0x12b1: 'ḟ', 0x12b4: 'Ṁ', 0x12b5: 'ṁ', 0x12b7: 'Ṗ',
	0x12b8: 'ẁ', 0x12b9: 'ṗ', 0x12ba: 'ẃ', 0x12bb: 'Ṡ', 0x12bc: 'ỳ', 0x12bd: 'Ẅ',
	0x12be: 'ẅ', 0x12bf: 'ṡ', 0x12d0: 'Ŵ', 0x12d7: 'Ṫ', 0x12de: 'Ŷ', 0x12f0: 'ŵ',
	0x12f7: 'ṫ', 0x12fe: 'ŷ',

	// Kana
	0x47e: '‾', 0x4a1: '。', 0x4a2: '「', 0x4a3: '」', 0x4a4: '、', 0x4a5: '・',
	0x4a6: 'ヲ', 0x4a7: 'ァ', 0x4a8: 'ィ', 0x4a9: 'ゥ', 0x4aa: 'ェ', 0x4ab: 'ォ',
	0x4ac: 'ャ', 0x4ad: 'ュ', 0x4ae: 'ョ', 0x4af: 'ッ', 0x4b0: 'ー', 0x4b1: 'ア',
	0x4b2: 'イ', 0x4b3: 'ウ', 0x4b4: 'エ', 0x4b5: 'オ', 0x4b6: 'カ', 0x4b7: 'キ',
	0x4b8: 'ク', 0x4b9: 'ケ', 0x4ba: 'コ', 0x4bb: 'サ', 0x4bc: 'シ', 0x4bd: 'ス',
	0x4be: 'セ', 0x4bf: 'ソ', 0x4c0: 'タ', 0x4c1: 'チ', 0x4c2: 'ツ', 0x4c3: 'テ',
	0x4c4: 'ト', 0x4c5: 'ナ', 0x4c6: 'ニ', 0x4c7: 'ヌ', 0x4c8: 'ネ', 0x4c9: 'ノ',
	0x4ca: 'ハ', 0x4cb: 'ヒ', 0x4cc: 'フ', 0x4cd: 'ヘ', 0x4ce: 'ホ', 0x4cf: 'マ',
	0x4d0: 'ミ', 0x4d1: 'ム', 0x4d2: 'メ', 0x4d3: 'モ', 0x4d4: 'ヤ', 0x4d5: 'ユ',
	0x4d6: 'ヨ', 0x4d7: 'ラ', 0x4d8: 'リ', 0x4d9: 'ル', 0x4da: 'レ', 0x4db: 'ロ',
	0x4dc: 'ワ', 0x4dd: 'ン', 0x4de: '゛', 0x4df: '゜',

	// Technical
	0x8a1: 0x23b7, 0x8a2: 0x250c, 0x8a3: 0x2500, 0x8a4: 0x2320, 0x8a5: 0x2321,
	0x8a6: 0x2502, 0x8a7: 0x23a1, 0x8a8: 0x23a3, 0x8a9: 0x23a4, 0x8aa: 0x23a6,
	0x8ab: 0x239b, 0x8ac: 0x239d, 0x8ad: 0x239e, 0x8ae: 0x23a0, 0x8af: 0x23a8,
	0x8b0: 0x23ac, 0x8bc: '≤', 0x8bd: '≠', 0x8be: '≥', 0x8bf: '∫', 0x8c0: '∴',
	0x8c1: '∝', 0x8c2: '∞', 0x8c5: '∇', 0x8c8: '∼', 0x8c9: '≃', 0x8cd: '⇔',
	0x8ce: '⇒', 0x8cf: '≡', 0x8d6: '√', 0x8da: '⊂', 0x8db: '⊃', 0x8dc: '∩',
	0x8dd: '∪', 0x8de: '∧', 0x8df: '∨', 0x8ef: '∂', 0x8f6: 'ƒ', 0x8fb: '←',
	0x8fc: '↑', 0x8fd: '→', 0x8fe: '↓',

	// Special
	0x9e0: '◆', 0x9e1: '▒', 0x9e2: 0x2409, 0x9e3: 0x240c, 0x9e4: 0x240d,
	0x9e5: 0x240a, 0x9e8: 0x2424, 0x9e9: 0x240b, 0x9ea: '┘', 0x9eb: '┐',
	0x9ec: '┌', 0x9ed: '└', 0x9ee: '┼', 0x9ef: 0x23ba, 0x9f0: 0x23bb,
	0x9f1: '─', 0x9f2: 0x23bc, 0x9f3: 0x23bd, 0x9f4: '├', 0x9f5: '┤',
	0x9f6: '┴', 0x9f7: '┬', 0x9f8: '│',

	// Publishing
	0xaa1: 0x2003, 0xaa2: 0x2002, 0xaa3: 0x2004, 0xaa4: 0x2005, 0xaa5: 0x2007,
	0xaa6: 0x2008, 0xaa7: 0x2009, 0xaa8: 0x200a, 0xaa9: '—', 0xaaa: '–',
	0xaae: '…', 0xaaf: '‥', 0xab0: '⅓', 0xab1: '⅔', 0xab2: '⅕', 0xab3: '⅖',
	0xab4: '⅗', 0xab5: '⅘', 0xab6: '⅙', 0xab7: '⅚', 0xab8: '℅', 0xabb: '‒',
	0xabc: '⟨', 0xabd: '.', 0xabe: '⟩', 0xac3: '⅛', 0xac4: '⅜', 0xac5: '⅝',
	0xac6: '⅞', 0xac9: '™', 0xaca: '☓', 0xacc: '◁', 0xacd: '▷', 0xace: '○',
	0xacf: '▯', 0xad0: '‘', 0xad1: '’', 0xad2: '“', 0xad3: '”', 0xad4: '℞',
	0xad5: '‰', 0xad6: '′', 0xad7: '″', 0xad9: '✝', 0xadb: '▬', 0xadc: '◀',
	0xadd: '▶', 0xade: '●', 0xadf: '▮', 0xae0: '◦', 0xae1: '▫', 0xae2: '▭',
	0xae3: '△', 0xae4: '▽', 0xae5: '☆', 0xae6: '•', 0xae7: '▪', 0xae8: '▲',
	0xae9: '▼', 0xaea: '☜', 0xaeb: '☞', 0xaec: '♣', 0xaed: '♦', 0xaee: '♥',
	0xaf0: '✠', 0xaf1: '†', 0xaf2: '‡', 0xaf3: '✓', 0xaf4: '✗', 0xaf5: '♯',
	0xaf6: '♭', 0xaf7: '♂', 0xaf8: '♀', 0xaf9: '☎', 0xafa: '⌕', 0xafb: '℗',
	0xafc: '‸', 0xafd: '‚', 0xafe: '„',

	// Korean
	0xeef: 'ㅭ', 0xef0: 'ㅱ', 0xef1: 'ㅸ', 0xef2: 'ㅿ', 0xef3: 'ㆁ', 0xef4: 'ㆄ',
	0xef5: 'ㆆ', 0xef6: 'ㆍ', 0xef7: 'ㆎ', 0xef8: 0x11eb, 0xef9: 0x11f0,
	0xefa: 0x11f9, 0xeff: '₩',
}
