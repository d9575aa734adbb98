package generate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMergeIsFirstWins(t *testing.T) {
	base := PassContext{Organization: "Nordwind Logistics"}

	merged := base.Merge(PassContext{
		Organization: "SomethingElse",
		Project:      "Warehouse 4.0",
	})

	assert.Equal(t, "Nordwind Logistics", merged.Organization)
	assert.Equal(t, "Warehouse 4.0", merged.Project)

	// Merging again changes nothing once fields are set.
	again := merged.Merge(PassContext{Organization: "X", Project: "Y", Protagonist: "Z"})
	assert.Equal(t, merged.Organization, again.Organization)
	assert.Equal(t, merged.Project, again.Project)
	assert.Equal(t, "Z", again.Protagonist)
}

func TestRegexExtractor(t *testing.T) {
	tests := []struct {
		name string
		text string
		want PassContext
	}{
		{
			name: "labelled fields",
			text: "Company: Nordwind Logistics\nProject: Warehouse 4.0\nTrainer: Sarah Klein\n",
			want: PassContext{
				Organization: "Nordwind Logistics",
				Project:      "Warehouse 4.0",
				Protagonist:  "Sarah Klein",
			},
		},
		{
			name: "narrative company form",
			text: "The team at Brightside Solutions GmbH has been struggling with deployments.",
			want: PassContext{Organization: "Brightside Solutions"},
		},
		{
			name: "quoted project",
			text: `Work continues on the project "Atlas Migration" this quarter.`,
			want: PassContext{Project: "Atlas Migration"},
		},
		{
			name: "nothing recognizable",
			text: "just lowercase prose without any labels",
			want: PassContext{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RegexExtractor{}.Extract(tt.text))
		})
	}
}

func TestInjectAndPreamble(t *testing.T) {
	ctx := PassContext{Organization: "Nordwind Logistics", Project: "Warehouse 4.0"}

	prompt := ctx.Inject("Continue the scenario at {{organization}} for {{project}}.")
	assert.Equal(t, "Continue the scenario at Nordwind Logistics for Warehouse 4.0.", prompt)

	pre := ctx.Preamble()
	assert.Contains(t, pre, `"Nordwind Logistics"`)
	assert.Contains(t, pre, `"Warehouse 4.0"`)
	assert.NotContains(t, pre, "main character")

	assert.Empty(t, PassContext{}.Preamble())
}
