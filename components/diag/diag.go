// Package diag is the auxiliary status task: it periodically logs every
// joint's published state. It has no functional role; the supervisory layer
// polls the store directly.
package diag

import (
	"time"

	"github.com/sirupsen/logrus"

	arm "github.com/ZackeryPlovanic/controlsystems2019"
)

var log = logrus.WithFields(logrus.Fields{
	"pkg": "diag",
})

const defaultPeriod = 1 * time.Second

type Monitor struct {
	store  *arm.Store
	joints []arm.Name
	period time.Duration
}

func New(store *arm.Store, joints []arm.Name, period time.Duration) *Monitor {
	if period == 0 {
		period = defaultPeriod
	}
	return &Monitor{
		store:  store,
		joints: joints,
		period: period,
	}
}

func (m *Monitor) Name() string {
	return "diag"
}

func (m *Monitor) Period() time.Duration {
	return m.period
}

func (m *Monitor) Boot() error {
	return nil
}

func (m *Monitor) Tick(now time.Time) error {
	for _, j := range m.joints {
		st := m.store.State(j)
		log.WithFields(logrus.Fields{
			"joint":    string(j),
			"phase":    st.Phase.String(),
			"fault":    st.Fault.String(),
			"position": st.Position,
		}).Info("status")
	}
	return nil
}
