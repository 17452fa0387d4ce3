package inventory

import (
	"context"
	"fmt"

	"invext/pkg/sms"
)

// Apply runs action on each extension in order, one at a time, on the same scope.
// Nothing is retried or rolled back. Apply stops at the first Disable error or when ctx is done.
func Apply(ctx context.Context, scope sms.Scope, rep Reporter, exts []Extension, action Action) error {
	for i := range exts {
		if err := ctx.Err(); err != nil {
			return err
		}

		ext := &exts[i]
		switch action {
		case ActionInstall:
			ext.Install(ctx, scope, rep)
		case ActionUninstall:
			ext.Uninstall(ctx, scope, rep)
		case ActionEnable:
			ext.Enable(ctx, scope, rep)
		case ActionDisable:
			if err := ext.Disable(ctx, scope, rep); err != nil {
				return err
			}
		default:
			return fmt.Errorf("unknown action %q", action)
		}
	}
	return nil
}
