// Package templates holds the HTML email bodies, embedded into the binary.
package templates

import (
	"embed"
	"html/template"
)

//go:embed *.html
var files embed.FS

var (
	ReservationEmail = template.Must(template.ParseFS(files, "reservation_email.html"))
	ViolationEmail   = template.Must(template.ParseFS(files, "violation_email.html"))
)
