package project

import (
	"hash/fnv"
	"strconv"
)

// sectionDelimiter separates section contents inside the hash input so that
// ["ab","cd"] and ["a","bcd"] differ. NUL does not occur in normal text.
const sectionDelimiter = 0x00

// HashSections fingerprints the contents of a section list. It is a fast
// change detector (FNV-1a), not a security boundary. Titles and ids are
// fixed per phase and do not take part.
func HashSections(sections []Section) string {
	h := fnv.New64a()
	for _, s := range sections {
		_, _ = h.Write([]byte(s.Content))
		_, _ = h.Write([]byte{sectionDelimiter})
	}
	return strconv.FormatUint(h.Sum64(), 16)
}
