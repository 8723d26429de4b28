package normalize

import (
	"fmt"
	"strings"
)

// usfmBooks maps lowercase English book names to their 3-letter USFM codes,
// one entry per canonical book (plus the Psalm/Psalms spelling variant).
var usfmBooks = map[string]string{
	"genesis":         "GEN",
	"exodus":          "EXO",
	"leviticus":       "LEV",
	"numbers":         "NUM",
	"deuteronomy":     "DEU",
	"joshua":          "JOS",
	"judges":          "JDG",
	"ruth":            "RUT",
	"1 samuel":        "1SA",
	"2 samuel":        "2SA",
	"1 kings":         "1KI",
	"2 kings":         "2KI",
	"1 chronicles":    "1CH",
	"2 chronicles":    "2CH",
	"ezra":            "EZR",
	"nehemiah":        "NEH",
	"esther":          "EST",
	"job":             "JOB",
	"psalm":           "PSA",
	"psalms":          "PSA",
	"proverbs":        "PRO",
	"ecclesiastes":    "ECC",
	"song of solomon": "SNG",
	"isaiah":          "ISA",
	"jeremiah":        "JER",
	"lamentations":    "LAM",
	"ezekiel":         "EZK",
	"daniel":          "DAN",
	"hosea":           "HOS",
	"joel":            "JOL",
	"amos":            "AMO",
	"obadiah":         "OBA",
	"jonah":           "JON",
	"micah":           "MIC",
	"nahum":           "NAM",
	"habakkuk":        "HAB",
	"zephaniah":       "ZEP",
	"haggai":          "HAG",
	"zechariah":       "ZEC",
	"malachi":         "MAL",
	"matthew":         "MAT",
	"mark":            "MRK",
	"luke":            "LUK",
	"john":            "JHN",
	"acts":            "ACT",
	"romans":          "ROM",
	"1 corinthians":   "1CO",
	"2 corinthians":   "2CO",
	"galatians":       "GAL",
	"ephesians":       "EPH",
	"philippians":     "PHP",
	"colossians":      "COL",
	"1 thessalonians": "1TH",
	"2 thessalonians": "2TH",
	"1 timothy":       "1TI",
	"2 timothy":       "2TI",
	"titus":           "TIT",
	"philemon":        "PHM",
	"hebrews":         "HEB",
	"james":           "JAS",
	"1 peter":         "1PE",
	"2 peter":         "2PE",
	"1 john":          "1JN",
	"2 john":          "2JN",
	"3 john":          "3JN",
	"jude":            "JUD",
	"revelation":      "REV",
}

// USFM converts a human reference like "John 3:16" or "Psalm 23:1-6" into
// the USFM passage id the Bible API expects ("JHN.3.16",
// "PSA.23.1-PSA.23.6"). A reference whose book name is not recognized is
// returned unchanged; the caller passes it to the API as-is.
func USFM(ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ref
	}

	book := ref
	chapterVerse := ""
	if i := strings.LastIndex(ref, " "); i >= 0 && strings.ContainsAny(ref[i+1:], "0123456789") {
		book = ref[:i]
		chapterVerse = ref[i+1:]
	}

	code, ok := usfmBooks[strings.ToLower(strings.TrimSpace(book))]
	if !ok {
		return ref
	}
	if chapterVerse == "" {
		return code
	}

	chapter := chapterVerse
	verses := ""
	if i := strings.Index(chapterVerse, ":"); i >= 0 {
		chapter = chapterVerse[:i]
		verses = chapterVerse[i+1:]
	}
	if verses == "" {
		return fmt.Sprintf("%s.%s", code, chapter)
	}

	if i := strings.Index(verses, "-"); i >= 0 {
		start, end := verses[:i], verses[i+1:]
		return fmt.Sprintf("%s.%s.%s-%s.%s.%s", code, chapter, start, code, chapter, end)
	}
	return fmt.Sprintf("%s.%s.%s", code, chapter, verses)
}
