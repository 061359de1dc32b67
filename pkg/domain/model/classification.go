package model

import "github.com/secmon-lab/shepherd/pkg/domain/types"

// Classification is the suggested impact and tags for a ticket
type Classification struct {
	Impact string   `json:"impact"`
	Tags   []string `json:"tags"`
}

// Normalize drops values that are not valid impact levels or tag names
func (c *Classification) Normalize() (*types.Impact, Tags) {
	var impact *types.Impact
	if i := types.Impact(c.Impact); i.Validate() == nil {
		impact = &i
	}

	tags := Tags{}
	for _, raw := range c.Tags {
		tag := types.Tag(raw)
		if tag.Validate() != nil {
			continue
		}
		tags = tags.Add(tag)
	}
	return impact, tags
}
