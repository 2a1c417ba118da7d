package catalog

// MaxImageSlots is the number of image positions a product has. Slot 0 is
// rendered as the main image.
const MaxImageSlots = 3

// ImageUpdate describes the image state for a product update.
type ImageUpdate struct {
	// Previous is what the product has stored before the update.
	Previous []string
	// Existing is the caller's keep-list. nil means the caller sent nothing
	// and Previous is used instead; an empty, non-nil slice is an explicit
	// empty list.
	Existing []string
	// Uploads holds a newly uploaded URL per slot, "" where nothing was sent.
	Uploads [MaxImageSlots]string
}

// ReconcileImages merges slot uploads with the kept images into the final
// ordered image list.
//
// An upload owns its slot. Otherwise the kept image at that index is
// retained. Kept images that lost their slot to an upload are appended while
// room remains. An empty result falls back to the stored images, and fails
// only when the product had none.
func ReconcileImages(u ImageUpdate) ([]string, error) {
	existing := u.Existing
	if existing == nil {
		existing = u.Previous
	}

	final := make([]string, 0, MaxImageSlots)
	placed := make(map[string]bool, MaxImageSlots)
	for slot := 0; slot < MaxImageSlots; slot++ {
		switch {
		case u.Uploads[slot] != "":
			final = append(final, u.Uploads[slot])
			placed[u.Uploads[slot]] = true
		case slot < len(existing) && existing[slot] != "":
			final = append(final, existing[slot])
			placed[existing[slot]] = true
		}
	}

	for _, img := range existing {
		if len(final) >= MaxImageSlots {
			break
		}
		if img == "" || placed[img] {
			continue
		}
		final = append(final, img)
		placed[img] = true
	}

	if len(final) == 0 {
		if len(u.Previous) == 0 {
			return nil, invalid("images", "at least one image is required")
		}
		n := len(u.Previous)
		if n > MaxImageSlots {
			n = MaxImageSlots
		}
		return append([]string(nil), u.Previous[:n]...), nil
	}
	return final, nil
}

// RemovedImages lists stored images that are absent from final, in stored
// order. Callers delete them from the image host after a successful update.
func RemovedImages(previous, final []string) []string {
	keep := make(map[string]bool, len(final))
	for _, img := range final {
		keep[img] = true
	}
	var removed []string
	for _, img := range previous {
		if img != "" && !keep[img] {
			removed = append(removed, img)
		}
	}
	return removed
}

// ValidateCreateImages enforces the creation rule: exactly MaxImageSlots
// images. Updates are deliberately more lenient (see ReconcileImages).
func ValidateCreateImages(n int) error {
	if n != MaxImageSlots {
		return invalid("images", "exactly %d images are required", MaxImageSlots)
	}
	return nil
}
