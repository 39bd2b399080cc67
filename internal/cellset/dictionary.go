package cellset

import (
	"github.com/RoaringBitmap/roaring/v2"
)

// Dictionary assigns dense ids to members so several cellsets can be
// compared as compressed bitmaps.
type Dictionary struct {
	ids map[string]uint32
}

func NewDictionary() *Dictionary {
	return &Dictionary{ids: make(map[string]uint32)}
}

// Encode returns the bitmap of s, registering unseen members.
func (d *Dictionary) Encode(s Cellset) *roaring.Bitmap {
	bm := roaring.New()
	for _, m := range s.members {
		id, ok := d.ids[m]
		if !ok {
			id = uint32(len(d.ids))
			d.ids[m] = id
		}
		bm.Add(id)
	}
	bm.RunOptimize()
	return bm
}

func (d *Dictionary) Len() int { return len(d.ids) }
