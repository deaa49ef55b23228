package entry

import (
	"strings"
	"time"

	"linewaste/internal/catalog"
	"linewaste/internal/model"
)

func validateCommon(v *ValidationError, cat *catalog.Catalog, now time.Time, date time.Time, shift, variant string) {
	shift, variant = strings.TrimSpace(shift), strings.TrimSpace(variant)
	if date.IsZero() {
		v.addf("date is required")
	} else if model.Day(date).After(model.Day(now)) {
		v.addf("date %s is in the future", model.Day(date).Format(model.DateLayout))
	}
	if !cat.HasShift(shift) {
		v.addf("unknown shift %q", shift)
	}
	if !cat.HasVariant(variant) {
		v.addf("unknown variant %q", variant)
	}
}

// ValidateDefects 校验缺陷明细表单
func ValidateDefects(cat *catalog.Catalog, now time.Time, form DefectForm) error {
	v := &ValidationError{}
	validateCommon(v, cat, now, form.Date, form.Shift, form.Variant)
	if !cat.HasMachine(strings.TrimSpace(form.Machine)) {
		v.addf("unknown machine %q", form.Machine)
	}

	seen := make(map[string]bool, len(form.Defects))
	for _, d := range form.Details() {
		if !cat.HasDefectType(d.DefectType) {
			v.addf("unknown defect type %q", d.DefectType)
		}
		if seen[d.DefectType] {
			v.addf("defect type %q submitted twice", d.DefectType)
		}
		seen[d.DefectType] = true
		for h, val := range d.Hours {
			if val < 0 {
				v.addf("%s: hour %d must not be negative", d.DefectType, h+1)
			}
		}
	}
	return v.orNil()
}

// ValidateOutput 校验产量表单
func ValidateOutput(cat *catalog.Catalog, now time.Time, form OutputForm) error {
	v := &ValidationError{}
	validateCommon(v, cat, now, form.Date, form.Shift, form.Variant)
	if form.AuditedWasteKg < 0 {
		v.addf("audited waste must not be negative")
	}
	if form.OutputPcs < 0 {
		v.addf("output pcs must not be negative")
	}
	return v.orNil()
}
