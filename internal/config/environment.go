package config

import "github.com/kamusis/baseline/internal/dimension"

// Environment returns the source of dimension values for this machine:
// the config's dimensions map, then BASELINE_DIM_* process variables, then
// ~/.baseline/.env. Dimensions none of them pin are detected.
func (c *Config) Environment() (dimension.Environment, error) {
	dotenv, err := LoadDotEnv()
	if err != nil {
		return nil, err
	}
	return dimension.Chain{
		dimension.Overrides(c.Dimensions),
		dimension.ProcessEnv{},
		dimension.Vars(dotenv),
	}, nil
}
