package workflow

import "fmt"

// TableBuilder builds an immutable transition table
type TableBuilder interface {
	// Configure returns the configuration for transitions leaving the given stage
	Configure(from Stage) StageConfiguration

	// Build creates a table from everything configured so far
	Build() *Table
}

// StageConfiguration configures the legal targets of one source stage
type StageConfiguration interface {
	// Permit allows moving from the configured stage to the target stage
	Permit(to Stage) StageConfiguration
}

// stageConfig implements StageConfiguration
type stageConfig struct {
	from    Stage
	targets []Stage
}

// tableBuilder implements TableBuilder
type tableBuilder struct {
	configurations map[Stage]*stageConfig
}

// NewBuilder creates a new transition table builder
func NewBuilder() TableBuilder {
	return &tableBuilder{
		configurations: make(map[Stage]*stageConfig),
	}
}

// Configure returns a stage configuration for the given source stage
func (b *tableBuilder) Configure(from Stage) StageConfiguration {
	if !from.IsValid() {
		panic(fmt.Sprintf("invalid stage: %s", from))
	}

	config, exists := b.configurations[from]
	if !exists {
		config = &stageConfig{from: from}
		b.configurations[from] = config
	}

	return config
}

// Build creates a new table; later changes to the builder do not affect it
func (b *tableBuilder) Build() *Table {
	legal := make(map[Stage]map[Stage]bool, len(b.configurations))
	for from, config := range b.configurations {
		targets := make(map[Stage]bool, len(config.targets))
		for _, to := range config.targets {
			targets[to] = true
		}
		legal[from] = targets
	}

	return &Table{legal: legal}
}

// Permit allows a transition to the target stage
func (c *stageConfig) Permit(to Stage) StageConfiguration {
	if !to.IsValid() {
		panic(fmt.Sprintf("invalid target stage: %s", to))
	}
	if to == c.from {
		panic(fmt.Sprintf("self-transition on stage %s", to))
	}

	for _, existing := range c.targets {
		if existing == to {
			return c
		}
	}
	c.targets = append(c.targets, to)

	return c
}
