package action

import (
	"fmt"

	"github.com/roach88/mirror/internal/ir"
)

// Validate checks the fields every destination relies on. It returns all
// problems found.
func Validate(msg Message) []ir.ValidationError {
	var errs []ir.ValidationError
	if msg.ID() == ir.NilUID {
		errs = append(errs, ir.ValidationError{Field: "id", Message: "identity is required"})
	}
	if msg.Destination().IsZero() {
		errs = append(errs, ir.ValidationError{Field: "address", Message: "destination address is required"})
	}

	switch m := msg.(type) {
	case RunAction:
		if m.Path == "" {
			errs = append(errs, ir.ValidationError{Field: "path", Message: "invoked path is required"})
		}
		for i, p := range m.Args {
			if p.IsZero() {
				errs = append(errs, ir.ValidationError{Field: fmt.Sprintf("args[%d]", i), Message: "argument pointer has no identity"})
			}
			if p.ID == m.ResultID {
				errs = append(errs, ir.ValidationError{Field: fmt.Sprintf("args[%d]", i), Message: "argument shares the result identity"})
			}
		}
		for k, p := range m.Kwargs {
			if p.IsZero() {
				errs = append(errs, ir.ValidationError{Field: "kwargs." + k, Message: "argument pointer has no identity"})
			}
			if p.ID == m.ResultID {
				errs = append(errs, ir.ValidationError{Field: "kwargs." + k, Message: "argument shares the result identity"})
			}
		}
	case SaveObjectAction:
		if m.Constant.Tag == "" {
			errs = append(errs, ir.ValidationError{Field: "tag", Message: "constant type tag is required"})
		}
	case CreateVMMessage:
		errs = append(errs, validateReplyTo(m.ReplyTo)...)
	case CreateWorkerMessage:
		errs = append(errs, validateReplyTo(m.ReplyTo)...)
	}
	return errs
}

func validateReplyTo(a ir.Address) []ir.ValidationError {
	if a.IsZero() {
		return []ir.ValidationError{{Field: "reply_to", Message: "reply-to address is required"}}
	}
	return nil
}
