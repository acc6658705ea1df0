package grid

// HeaderAbove finds the header a row belongs to: the one with the largest
// offset that is still at or above the row's offset. Returns ok=false when
// the row sits above every header; such rows carry no usable date context
// and are skipped by the builder.
func HeaderAbove(rowOffset int, headers []HeaderBlock) (HeaderBlock, bool) {
	var best HeaderBlock
	found := false

	for _, h := range headers {
		if h.Offset > rowOffset {
			continue
		}
		if !found || h.Offset > best.Offset {
			best = h
			found = true
		}
	}

	return best, found
}
