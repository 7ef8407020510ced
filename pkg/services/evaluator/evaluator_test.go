package evaluator

import (
	"testing"

	"github.com/de-tools/compliance-atlas/pkg/models/domain"
	"github.com/stretchr/testify/assert"
)

func TestEvaluator_Evaluate(t *testing.T) {
	e := New("")

	tests := []struct {
		name string
		cfg  *domain.ResourceConfig
		want domain.Verdict
	}{
		{
			name: "configuration unavailable",
			cfg:  nil,
			want: domain.VerdictNotAvailable,
		},
		{
			name: "no bootstrap actions",
			cfg:  &domain.ResourceConfig{},
			want: domain.VerdictFailed,
		},
		{
			name: "unapproved script only",
			cfg:  &domain.ResourceConfig{BootstrapScripts: []string{"s3://team-bucket/setup.sh"}},
			want: domain.VerdictFailed,
		},
		{
			name: "approved script among others",
			cfg: &domain.ResourceConfig{BootstrapScripts: []string{
				"s3://team-bucket/setup.sh",
				"s3://emr-boot-strap/harden.sh",
			}},
			want: domain.VerdictPassed,
		},
		{
			name: "approved bucket name embedded in another bucket",
			cfg:  &domain.ResourceConfig{BootstrapScripts: []string{"s3://copy-of-s3://emr-boot-strap/x.sh"}},
			want: domain.VerdictFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, e.Evaluate(tt.cfg))
		})
	}
}

func TestEvaluator_CustomPrefix(t *testing.T) {
	e := New("s3://org-hardening/")

	assert.Equal(t, domain.VerdictPassed, e.Evaluate(&domain.ResourceConfig{
		BootstrapScripts: []string{"s3://org-hardening/v2/run.sh"},
	}))
	assert.Equal(t, domain.VerdictFailed, e.Evaluate(&domain.ResourceConfig{
		BootstrapScripts: []string{"s3://emr-boot-strap/run.sh"},
	}))
}
