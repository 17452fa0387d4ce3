package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"invext/pkg/sms"
)

// OperationError is returned by Disable when the report could not be updated.
type OperationError struct {
	Op        Action
	ClassID   string
	ClassName string
	Err       error
}

func (e *OperationError) Error() string {
	return fmt.Sprintf("%s %s (%s): %v", e.Op, e.ClassName, e.ClassID, e.Err)
}

func (e *OperationError) Unwrap() error { return e.Err }

// Install adds the class to the site's inventory schema without enabling it.
// Failures are reported and otherwise ignored.
func (e *Extension) Install(ctx context.Context, scope sms.Scope, rep Reporter) {
	if err := scope.PutInventoryClass(ctx, e.inventoryClass()); err != nil {
		e.fail(ctx, rep, ActionInstall, err)
		return
	}
	e.report(ctx, rep, Outcome{Operation: ActionInstall, Status: StatusInstalled})
}

// Uninstall removes the class from the schema. Data collected for it is marked for deletion.
// A class that is not installed is reported as not found. Failures are reported and otherwise ignored.
func (e *Extension) Uninstall(ctx context.Context, scope sms.Scope, rep Reporter) {
	class, err := scope.FindInventoryClass(ctx, e.ClassID)
	if errors.Is(err, sms.ErrNotFound) {
		e.report(ctx, rep, Outcome{
			Operation: ActionUninstall,
			Status:    StatusNotFound,
			Detail:    fmt.Sprintf("The %s provided for uninstall does not exist.", e.ClassName),
		})
		return
	}
	if err != nil {
		e.fail(ctx, rep, ActionUninstall, err)
		return
	}

	if err := scope.DeleteInventoryClass(ctx, class); err != nil {
		e.fail(ctx, rep, ActionUninstall, err)
		return
	}
	e.report(ctx, rep, Outcome{Operation: ActionUninstall, Status: StatusUninstalled})
}

// Enable adds the class to the hardware inventory report of the default client settings.
// Failures are reported and otherwise ignored.
func (e *Extension) Enable(ctx context.Context, scope sms.Scope, rep Reporter) {
	report, err := scope.GetInventoryReport(ctx, sms.HardwareInventoryReportID)
	if err != nil {
		e.fail(ctx, rep, ActionEnable, err)
		return
	}

	classes := make([]sms.InventoryReportClass, len(report.ReportClasses)+1)
	copy(classes, report.ReportClasses)
	classes[len(classes)-1] = e.reportClass()
	report.ReportClasses = classes

	if err := scope.PutInventoryReport(ctx, report); err != nil {
		e.fail(ctx, rep, ActionEnable, err)
		return
	}
	e.report(ctx, rep, Outcome{Operation: ActionEnable, Status: StatusEnabled})
}

// Disable removes every report class matching the class ID, ignoring case.
// Clients stop collecting the class but collected data is kept.
// Unlike the other operations a failure is returned as an *OperationError after being reported.
func (e *Extension) Disable(ctx context.Context, scope sms.Scope, rep Reporter) error {
	report, err := scope.GetInventoryReport(ctx, sms.HardwareInventoryReportID)
	if err != nil {
		return e.failDisable(ctx, rep, err)
	}

	classes := make([]sms.InventoryReportClass, 0, len(report.ReportClasses))
	for _, c := range report.ReportClasses {
		if !strings.EqualFold(c.SMSClassID, e.ClassID) {
			classes = append(classes, c)
		}
	}
	report.ReportClasses = classes

	if err := scope.PutInventoryReport(ctx, report); err != nil {
		return e.failDisable(ctx, rep, err)
	}
	e.report(ctx, rep, Outcome{Operation: ActionDisable, Status: StatusDisabled})
	return nil
}

func (e *Extension) failDisable(ctx context.Context, rep Reporter, err error) error {
	e.fail(ctx, rep, ActionDisable, err)
	return &OperationError{Op: ActionDisable, ClassID: e.ClassID, ClassName: e.ClassName, Err: err}
}

func (e *Extension) fail(ctx context.Context, rep Reporter, op Action, err error) {
	e.report(ctx, rep, Outcome{Operation: op, Status: StatusFailed, Detail: err.Error(), Err: err})
}

func (e *Extension) report(ctx context.Context, rep Reporter, o Outcome) {
	if rep == nil {
		rep = NewLogReporter(nil)
	}
	o.ClassID = e.ClassID
	o.ClassName = e.ClassName
	rep.Report(ctx, o)
}
