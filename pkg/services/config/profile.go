package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/shahul3595/SFCAudit/pkg/store/dataset"
)

// ServerConfig holds the web API listen address parts.
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port string `mapstructure:"port"`
}

// Profile is one audit configuration: where the dataset and rule workbook
// live and how runs execute.
type Profile struct {
	DataDir       string         `mapstructure:"data_dir" validate:"required"`
	RulesWorkbook string         `mapstructure:"rules_workbook" validate:"required"`
	OutputDir     string         `mapstructure:"output_dir"`
	Workers       int            `mapstructure:"workers" validate:"gte=0"`
	Dataset       dataset.Config `mapstructure:"dataset"`
	Server        ServerConfig   `mapstructure:"server"`
}

// Load reads a profile file, filling dataset and server settings with
// defaults. Environment variables prefixed SFCAUDIT_ override file values.
func Load(profilePath string) (*Profile, error) {
	v := viper.New()
	v.SetConfigFile(profilePath)
	v.SetEnvPrefix("SFCAUDIT")
	v.AutomaticEnv()

	ds := dataset.DefaultConfig()
	v.SetDefault("output_dir", "reports")
	v.SetDefault("workers", 4)
	v.SetDefault("dataset.registry_table", ds.RegistryTable)
	v.SetDefault("dataset.id_column", ds.IDColumn)
	v.SetDefault("dataset.name_column", ds.NameColumn)
	v.SetDefault("dataset.district_column", ds.DistrictColumn)
	v.SetDefault("dataset.population_column", ds.PopulationColumn)
	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", "8080")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read profile: %w", err)
	}

	var profile Profile
	if err := v.Unmarshal(&profile); err != nil {
		return nil, fmt.Errorf("failed to parse profile: %w", err)
	}
	if err := validator.New().Struct(&profile); err != nil {
		return nil, fmt.Errorf("invalid profile: %w", err)
	}
	return &profile, nil
}
