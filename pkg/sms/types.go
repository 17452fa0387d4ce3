// Package sms defines the contract with the Configuration Manager SMS provider.
// Class names and the hardware inventory report ID are part of the wire contract
// with the provider and must not change.
package sms

import (
	"context"
	"errors"
	"fmt"
)

// Remote class names.
const (
	InventoryClassName         = "SMS_InventoryClass"
	InventoryClassPropertyName = "SMS_InventoryClassProperty"
	InventoryReportName        = "SMS_InventoryReport"
	InventoryReportClassName   = "SMS_InventoryReportClass"
)

// HardwareInventoryReportID identifies the hardware inventory report of the default client settings.
const HardwareInventoryReportID = "{00000000-0000-0000-0000-000000000001}"

const (
	// StringType is the CIM type code for a string property.
	StringType = 8
	// DefaultPropertyWidth is the width given to every inventory class property.
	DefaultPropertyWidth = 2048
	// DefaultReportTimeout is the collection timeout of a report class, in milliseconds.
	DefaultReportTimeout = 6000
)

// DefaultNamespace is the client namespace an inventory class is read from when none is given.
// It is escaped the way the provider expects a namespace path.
const DefaultNamespace = `\\\\.\\root\\cimv2`

// ErrNotFound is returned when a queried remote instance does not exist.
var ErrNotFound = errors.New("remote instance not found")

// InventoryClass is an SMS_InventoryClass instance.
type InventoryClass struct {
	SMSClassID   string                   `json:"SMSClassID"`
	ClassName    string                   `json:"ClassName"`
	SMSGroupName string                   `json:"SMSGroupName"`
	Namespace    string                   `json:"Namespace"`
	IsDeletable  bool                     `json:"IsDeletable"`
	Properties   []InventoryClassProperty `json:"Properties"`
}

// InventoryClassProperty is an embedded SMS_InventoryClassProperty.
type InventoryClassProperty struct {
	PropertyName string `json:"PropertyName"`
	Type         int    `json:"Type"`
	Width        int    `json:"Width"`
	IsKey        bool   `json:"IsKey"`
}

// InventoryReport is an SMS_InventoryReport instance.
type InventoryReport struct {
	InventoryReportID string                 `json:"InventoryReportID"`
	ReportClasses     []InventoryReportClass `json:"ReportClasses"`
}

// InventoryReportClass is an embedded SMS_InventoryReportClass.
type InventoryReportClass struct {
	SMSClassID       string   `json:"SMSClassID"`
	ReportProperties []string `json:"ReportProperties"`
	Timeout          int      `json:"Timeout"`
}

// Scope is an open connection to a site's SMS provider namespace.
// Every method performs one blocking request/response exchange.
type Scope interface {
	// PutInventoryClass creates or updates an inventory class definition.
	PutInventoryClass(ctx context.Context, class *InventoryClass) error
	// FindInventoryClass returns the class whose SMSClassID equals classID, or ErrNotFound.
	FindInventoryClass(ctx context.Context, classID string) (*InventoryClass, error)
	// DeleteInventoryClass removes the class definition and marks its collected data for deletion.
	DeleteInventoryClass(ctx context.Context, class *InventoryClass) error
	// GetInventoryReport fetches the report with the given ID.
	GetInventoryReport(ctx context.Context, reportID string) (*InventoryReport, error)
	// PutInventoryReport writes the report back, replacing its report classes.
	PutInventoryReport(ctx context.Context, report *InventoryReport) error
}

// RemoteError is a failed remote call.
type RemoteError struct {
	Op       string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *RemoteError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s: exit %d: %s", e.Op, e.ExitCode, e.Stderr)
}

func (e *RemoteError) Unwrap() error { return e.Err }
