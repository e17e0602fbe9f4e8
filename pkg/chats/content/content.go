// Package content defines the content parts carried by a message.
package content

// Part is a piece of content within a message.
// External packages can implement this interface to add custom content types;
// adapters skip parts they do not understand.
type Part interface {
	PartKind() string
}

// Text is a plain text content part.
type Text struct {
	Text string
}

func (t Text) PartKind() string { return "text" }
