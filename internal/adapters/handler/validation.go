package handler

import (
	validation "github.com/go-ozzo/ozzo-validation"
)

var bloodGroups = []interface{}{"A+", "A-", "B+", "B-", "AB+", "AB-", "O+", "O-"}

var validBloodGroup = validation.In(bloodGroups...).Error("must be a valid blood group")

// optional applies rules to a pointer field only when it is set.
func optional(p *string, rules ...validation.Rule) error {
	if p == nil {
		return nil
	}
	return validation.Validate(*p, append([]validation.Rule{validation.Required}, rules...)...)
}
