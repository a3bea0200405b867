package domain

import "strings"

type FieldKind int

const (
	KindOther FieldKind = iota
	KindText
	KindTextarea
	KindNumber
	KindPhone
	KindEmail
	KindWebsite
	KindSelect
	KindRadio
	KindMultiselect
	KindFileUpload
	KindTime
	KindHidden
	KindCheckbox
	KindName
	KindAddress
	KindDate
	KindSection
	KindPage
	KindHTML
	KindCaptcha
	KindPassword
)

var kindNames = map[FieldKind]string{
	KindOther:       "other",
	KindText:        "text",
	KindTextarea:    "textarea",
	KindNumber:      "number",
	KindPhone:       "phone",
	KindEmail:       "email",
	KindWebsite:     "website",
	KindSelect:      "select",
	KindRadio:       "radio",
	KindMultiselect: "multiselect",
	KindFileUpload:  "fileupload",
	KindTime:        "time",
	KindHidden:      "hidden",
	KindCheckbox:    "checkbox",
	KindName:        "name",
	KindAddress:     "address",
	KindDate:        "date",
	KindSection:     "section",
	KindPage:        "page",
	KindHTML:        "html",
	KindCaptcha:     "captcha",
	KindPassword:    "password",
}

var kindByName = func() map[string]FieldKind {
	m := make(map[string]FieldKind, len(kindNames)+1)
	for k, n := range kindNames {
		m[n] = k
	}
	m["url"] = KindWebsite
	return m
}()

// ParseFieldKind maps a host field type to its kind; unknown types become KindOther.
func ParseFieldKind(s string) FieldKind {
	if k, ok := kindByName[strings.ToLower(strings.TrimSpace(s))]; ok {
		return k
	}
	return KindOther
}

func (k FieldKind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return kindNames[KindOther]
}

func (k FieldKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func (k *FieldKind) UnmarshalText(b []byte) error {
	*k = ParseFieldKind(string(b))
	return nil
}

// Shape tells how a field's value is laid out in an entry.
type Shape int

const (
	ShapeScalar Shape = iota
	ShapeCheckbox
	ShapeName
	ShapeAddress
	ShapeDate
)

func (k FieldKind) Shape() Shape {
	switch k {
	case KindCheckbox:
		return ShapeCheckbox
	case KindName:
		return ShapeName
	case KindAddress:
		return ShapeAddress
	case KindDate:
		return ShapeDate
	case KindOther, KindText, KindTextarea, KindNumber, KindPhone, KindEmail, KindWebsite,
		KindSelect, KindRadio, KindMultiselect, KindFileUpload, KindTime, KindHidden,
		KindSection, KindPage, KindHTML, KindCaptcha, KindPassword:
		return ShapeScalar
	}
	return ShapeScalar
}

// Excluded reports kinds that never carry a meaningful submitted value.
func (k FieldKind) Excluded() bool {
	switch k {
	case KindSection, KindPage, KindHTML, KindCaptcha, KindPassword:
		return true
	}
	return false
}
