package properties

import "os"

func DataDir() string {
	return os.Getenv("FBSTAC_DATA_DIR")
}

func CatalogDir() string {
	return os.Getenv("FBSTAC_CATALOG_DIR")
}

// GEEKeyFile points at a Google service account JSON key with Earth Engine access.
func GEEKeyFile() string {
	return os.Getenv("GEE_KEY_FILE")
}

func GEEProject() string {
	return os.Getenv("GEE_PROJECT")
}

func PlanetaryComputerKey() string {
	return os.Getenv("PC_SDK_SUBSCRIPTION_KEY")
}

func S3Endpoint() string {
	endpoint := os.Getenv("FBSTAC_S3_ENDPOINT")
	if endpoint == "" {
		endpoint = "s3.amazonaws.com"
	}
	return endpoint
}

func S3AccessKey() string {
	return os.Getenv("AWS_ACCESS_KEY_ID")
}

func S3SecretKey() string {
	return os.Getenv("AWS_SECRET_ACCESS_KEY")
}

func S3Bucket() string {
	return os.Getenv("FBSTAC_S3_BUCKET")
}

func DiscordErrorNotificationUrl() string {
	return os.Getenv("DISCORD_ERROR_NOTIFICATION_URL")
}

func DiscordSuccessNotificationUrl() string {
	return os.Getenv("DISCORD_SUCCESS_NOTIFICATION_URL")
}
