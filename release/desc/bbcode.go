package desc

import (
	"fmt"
	"strconv"
)

// BBCode tag helpers. The tag dialect is an opaque output format consumed by
// the forum-posting side; spelling and casing must be reproduced literally.

func bold(s string) string {
	return "[b]" + s + "[/b]"
}

func sized(size int, s string) string {
	return "[size=" + strconv.Itoa(size) + "]" + s + "[/size]"
}

// Link renders a labeled link, exported for callers pre-building a raw link line.
func Link(url, text string) string {
	return fmt.Sprintf("[url=%s]%s[/url]", url, text)
}

func spoiler(title, s string) string {
	return fmt.Sprintf("[spoiler=%q]%s[/spoiler]", title, s)
}

func code(s string) string {
	return "[code]" + s + "[/code]"
}
