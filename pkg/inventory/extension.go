// Package inventory extends the hardware inventory schema of a Configuration Manager site.
//
// An Extension describes one inventory class. Extensions are loaded from a JSON schema file
// and applied to a site through an sms.Scope with Install, Uninstall, Enable and Disable.
// Outcomes are handed to a Reporter; only Disable returns its failure to the caller.
package inventory

import (
	"fmt"

	"invext/pkg/sms"

	"github.com/tidwall/gjson"
)

// Extension is one inventory class to manage.
type Extension struct {
	ClassID    string      `json:"SMSClassID" validate:"required"`
	ClassName  string      `json:"ClassName" validate:"required"`
	GroupName  string      `json:"SMSGroupName"`
	Namespace  string      `json:"Namespace,omitempty"`
	Properties PropertySet `json:"Properties" validate:"min=1,dive"`
}

// Property is a column of an inventory class.
type Property struct {
	Name string `validate:"required"`
	Type int
}

// PropertySet is the ordered list of an extension's properties. The first one is the key.
//
// In a schema file it is either an array of names, all typed as strings,
// or an object mapping names to CIM type codes. Object order is kept.
type PropertySet []Property

// UnmarshalJSON accepts both the array and the object form.
func (ps *PropertySet) UnmarshalJSON(data []byte) error {
	res := gjson.ParseBytes(data)

	var set PropertySet
	switch {
	case res.Type == gjson.Null:
		return nil
	case res.IsArray():
		for _, v := range res.Array() {
			set = append(set, Property{Name: v.String(), Type: sms.StringType})
		}
	case res.IsObject():
		res.ForEach(func(key, value gjson.Result) bool {
			set = append(set, Property{Name: key.String(), Type: int(value.Int())})
			return true
		})
	default:
		return fmt.Errorf("properties: want an array of names or an object of types, got %s", res.Type)
	}

	*ps = set
	return nil
}

// Names returns the property names in order.
func (ps PropertySet) Names() []string {
	names := make([]string, len(ps))
	for i, p := range ps {
		names[i] = p.Name
	}
	return names
}

func (e *Extension) namespace() string {
	if e.Namespace == "" {
		return sms.DefaultNamespace
	}
	return e.Namespace
}

// inventoryClass builds the SMS_InventoryClass definition for the extension.
func (e *Extension) inventoryClass() *sms.InventoryClass {
	props := make([]sms.InventoryClassProperty, len(e.Properties))
	for i, p := range e.Properties {
		props[i] = sms.InventoryClassProperty{
			PropertyName: p.Name,
			Type:         p.Type,
			Width:        sms.DefaultPropertyWidth,
			IsKey:        i == 0,
		}
	}

	return &sms.InventoryClass{
		SMSClassID:   e.ClassID,
		ClassName:    e.ClassName,
		SMSGroupName: e.GroupName,
		Namespace:    e.namespace(),
		IsDeletable:  true,
		Properties:   props,
	}
}

// reportClass builds the SMS_InventoryReportClass entry that enables the extension.
func (e *Extension) reportClass() sms.InventoryReportClass {
	return sms.InventoryReportClass{
		SMSClassID:       e.ClassID,
		ReportProperties: e.Properties.Names(),
		Timeout:          sms.DefaultReportTimeout,
	}
}
