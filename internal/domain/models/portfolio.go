package models

// Skill level bounds enforced on writes. Records are otherwise schemaless;
// the store keeps whatever fields the console sends.
const (
	MinSkillLevel = 0
	MaxSkillLevel = 100
)
