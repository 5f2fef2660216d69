package cfg

type Cfg struct {
	// Application configuration
	AppsDir      string
	Port         string
	APIAccessKey string
	DBPath       string
	DeliveryRate float64

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string
}
