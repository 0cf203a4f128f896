// Package response holds payload types that change how the responder writes a body.
package response

// Raw is written as is, without the data/errors envelope.
type Raw struct {
	Data any
}
