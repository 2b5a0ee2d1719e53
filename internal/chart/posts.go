package chart

import (
	"iter"
	"strconv"
)

// GeneratePosts returns a lazy sequence of "Post 1" through "Post count".
// Each range over the sequence starts again from "Post 1", and consumers may
// stop early. A negative count is rejected before anything is produced.
func GeneratePosts(count int) (iter.Seq[string], error) {
	if count < 0 {
		return nil, &InvalidArgumentError{Name: "count", Reason: "must be non-negative, got " + strconv.Itoa(count)}
	}
	return func(yield func(string) bool) {
		for i := range count {
			if !yield("Post " + strconv.Itoa(i+1)) {
				return
			}
		}
	}, nil
}
