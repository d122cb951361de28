package providers

// ChapterTitle returns the chapter title, or builds one from the volume and
// chapter markers when the upstream left it blank.
func ChapterTitle(title, volume, chapter string) string {
	if title != "" {
		return title
	}
	if volume != "" {
		title = "Vol." + volume
	}
	if chapter != "" {
		if title != "" {
			title += " "
		}
		title += "Ch." + chapter
	}
	if title == "" {
		title = "Untitled"
	}
	return title
}
