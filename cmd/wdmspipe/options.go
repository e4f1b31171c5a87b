package main

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"

	"wdmspipe/internal/config"
	lg "wdmspipe/internal/log"
	"wdmspipe/internal/sed"
)

// resolveConfig loads the YAML config when given and applies flag
// overrides on top, so flags always win
func resolveConfig(flags *pflag.FlagSet) (config.Config, error) {
	cfg := config.Default()

	if path, _ := flags.GetString("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	}

	if subset, _ := flags.GetString("subset"); subset != "" {
		cfg.Export.Subset = subset
	}
	if chunk, _ := flags.GetInt("chunk"); chunk > 0 {
		cfg.Export.ChunkSize = chunk
	}
	if noUV, _ := flags.GetBool("no-uv"); noUV {
		cfg.Load.DropUVBands = true
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// resolvePlots seeds the plot toggle from the config; an explicitly set
// --plots flag wins either way
func resolvePlots(flags *pflag.FlagSet, cfg config.Config) bool {
	if flags.Changed("plots") {
		enabled, _ := flags.GetBool("plots")
		return enabled
	}
	return cfg.Plots.Enabled
}

func progressMode(flags *pflag.FlagSet) (lg.Mode, error) {
	raw, _ := flags.GetString("progress")
	switch mode := lg.Mode(raw); mode {
	case lg.ModeAuto, lg.ModePlain, lg.ModeOff:
		return mode, nil
	default:
		return lg.ModeOff, fmt.Errorf("unknown progress mode %q (want auto, plain, or off)", raw)
	}
}

func componentKind(flags *pflag.FlagSet) (sed.ComponentKind, error) {
	raw, _ := flags.GetString("kind")
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "WD":
		return sed.KindWD, nil
	case "MS":
		return sed.KindMS, nil
	default:
		return "", fmt.Errorf("unknown component kind %q (want WD or MS)", raw)
	}
}
