package workflow

import (
	"time"

	"github.com/angelmondragon/speak2see-backend/pkg/config"
	"github.com/angelmondragon/speak2see-backend/pkg/enums"
)

// Profile is the poll cadence and ceiling applied to one execution.
type Profile struct {
	Name         enums.WorkflowProfile
	PollInterval time.Duration
	Timeout      time.Duration
}

type Profiles struct {
	Standard         Profile
	Express          Profile
	ExpressThreshold int64
}

func ProfilesFromConfig(cfg config.WorkflowConfig) Profiles {
	return Profiles{
		Standard: Profile{
			Name:         enums.WorkflowProfileStandard,
			PollInterval: cfg.StandardPollInterval,
			Timeout:      cfg.StandardTimeout,
		},
		Express: Profile{
			Name:         enums.WorkflowProfileExpress,
			PollInterval: cfg.ExpressPollInterval,
			Timeout:      cfg.ExpressTimeout,
		},
		ExpressThreshold: cfg.ExpressSizeThreshold,
	}
}

// For returns the named profile. Unknown names get STANDARD.
func (p Profiles) For(name enums.WorkflowProfile) Profile {
	if name == enums.WorkflowProfileExpress {
		return p.Express
	}
	return p.Standard
}

// Select picks EXPRESS for recordings below the threshold.
func (p Profiles) Select(sizeBytes int64) enums.WorkflowProfile {
	if p.ExpressThreshold > 0 && sizeBytes < p.ExpressThreshold {
		return enums.WorkflowProfileExpress
	}
	return enums.WorkflowProfileStandard
}

// Longest is the largest ceiling of any profile.
func (p Profiles) Longest() time.Duration {
	return max(p.Standard.Timeout, p.Express.Timeout)
}
