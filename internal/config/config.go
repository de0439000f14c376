package config

import "github.com/spf13/viper"

// Config is the full runtime configuration. Connection strings and layer
// names live here so the Core packages never consult the environment
// themselves.
type Config struct {
	ServerAddress string `mapstructure:"SERVER_ADDRESS"`
	DBSource      string `mapstructure:"DB_SOURCE"`
	OracleSource  string `mapstructure:"ORACLE_SOURCE"`

	TaxYear int `mapstructure:"TAX_YEAR"`

	// Geometry backend: "postgis" uses the feature store itself,
	// "shapefile" reads certified deliverables from ShapefileDir.
	GeometryBackend string `mapstructure:"GEOMETRY_BACKEND"`
	ShapefileDir    string `mapstructure:"SHAPEFILE_DIR"`

	TaxlotLayer      string `mapstructure:"TAXLOT_LAYER"`
	TaxCodeAreaLayer string `mapstructure:"TAX_CODE_AREA_LAYER"`

	// Treat a lock on the target dataset as step success.
	FailOnLockOK bool `mapstructure:"FAIL_ON_LOCK_OK"`
}

// LoadConfig reads configuration from app.env in the given directory, with
// environment variables taking precedence.
func LoadConfig(path string) (config Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("app")
	viper.SetConfigType("env")

	viper.SetDefault("SERVER_ADDRESS", "0.0.0.0:8080")
	viper.SetDefault("GEOMETRY_BACKEND", "postgis")
	viper.SetDefault("TAXLOT_LAYER", "taxlot")
	viper.SetDefault("TAX_CODE_AREA_LAYER", "tax_code_area")

	viper.AutomaticEnv()

	if err = viper.ReadInConfig(); err != nil {
		return
	}

	err = viper.Unmarshal(&config)
	return
}
