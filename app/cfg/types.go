package cfg

type Cfg struct {
	// Database configuration
	DBPath string

	// Application configuration
	ScrapersDir  string
	Port         string
	APIAccessKey string

	// Notification configuration
	TelegramBotToken string
	TelegramChatID   string

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string
}
