package system

import (
	"context"
	"fmt"
)

// PowerAction is a machine-wide power change.
type PowerAction int

const (
	Reboot PowerAction = iota
	Poweroff
)

func (a PowerAction) String() string {
	switch a {
	case Reboot:
		return "reboot"
	case Poweroff:
		return "poweroff"
	default:
		return fmt.Sprintf("PowerAction(%d)", int(a))
	}
}

// Power asks systemd to reboot or power off.
func (r *Runner) Power(ctx context.Context, a PowerAction) error {
	return r.Run(ctx, nil, nil, "systemctl", a.String())
}
