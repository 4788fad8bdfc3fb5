package process

import (
	"encoding/json"
	"os"
	"strings"

	"github.com/pkg/errors"
)

const scriptPlaceholder = "{file}"

type languageConfig struct {
	RunCmd []string `json:"run"`
	Env    []string `json:"env"`
}

// pythonConfig is the interpreter setup used when no language file is given.
// Unbuffered output keeps what a script printed before it was killed.
func pythonConfig(interpreter string) *languageConfig {
	return &languageConfig{
		RunCmd: []string{interpreter, "-u", scriptPlaceholder},
		Env:    []string{"PYTHONUNBUFFERED=1", "PYTHONIOENCODING=utf-8"},
	}
}

func NewLangConfigFromFile(path string) (*languageConfig, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	cfg := new(languageConfig)
	if err := json.NewDecoder(file).Decode(cfg); err != nil {
		return nil, errors.Wrap(err, "failed to decode language config")
	}
	if len(cfg.RunCmd) == 0 {
		return nil, errors.New("language config has no run command")
	}
	return cfg, nil
}

func (c *languageConfig) args(script string) []string {
	args := make([]string, 0, len(c.RunCmd)+1)
	substituted := false
	for _, a := range c.RunCmd {
		if strings.Contains(a, scriptPlaceholder) {
			a = strings.ReplaceAll(a, scriptPlaceholder, script)
			substituted = true
		}
		args = append(args, a)
	}
	if !substituted {
		args = append(args, script)
	}
	return args
}
