package bootstrap

import (
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/mongo"
)

// ClassifyConnectionError turns a MongoDB connection failure into a message with
// likely causes and remediation steps. uri should already be redacted.
func ClassifyConnectionError(err error, uri string) string {
	if err == nil {
		return ""
	}

	errStr := err.Error()

	if containsIgnoreCase(errStr, "error parsing uri") || containsIgnoreCase(errStr, "scheme must be") {
		return fmt.Sprintf("MongoDB URI %s could not be parsed.\n"+
			"  Remediation:\n"+
			"  - Use the form mongodb://[user:pass@]host[:port]/database\n"+
			"  - Check the MONGO_URI environment variable for stray quotes or spaces", uri)
	}

	if containsIgnoreCase(errStr, "no such host") || containsIgnoreCase(errStr, "lookup") {
		return fmt.Sprintf("Cannot resolve hostname in MongoDB URI %s.\n"+
			"  Remediation:\n"+
			"  - Verify the hostname is correct\n"+
			"  - Check DNS configuration\n"+
			"  - Try using IP address (127.0.0.1) instead of hostname", uri)
	}

	if containsIgnoreCase(errStr, "connection refused") || containsIgnoreCase(errStr, "actively refused") {
		return fmt.Sprintf("Connection refused by MongoDB at %s.\n"+
			"  This usually means MongoDB is not running.\n"+
			"  Remediation:\n"+
			"  - Start MongoDB: docker run -d -p 27017:27017 mongo:7\n"+
			"  - Verify the host and port in MONGO_URI", uri)
	}

	if containsIgnoreCase(errStr, "authentication failed") || containsIgnoreCase(errStr, "auth error") {
		return fmt.Sprintf("Authentication failed for MongoDB at %s.\n"+
			"  Remediation:\n"+
			"  - Verify the username and password in MONGO_URI\n"+
			"  - Check the authSource option matches the database holding the user", uri)
	}

	if mongo.IsTimeout(err) {
		return fmt.Sprintf("Connection to MongoDB at %s timed out.\n"+
			"  Possible causes:\n"+
			"  - MongoDB is starting up (wait and retry)\n"+
			"  - Network latency or firewall blocking the connection\n"+
			"  Remediation:\n"+
			"  - Raise MONGO_CONNECT_TIMEOUT\n"+
			"  - Verify network connectivity to the host in MONGO_URI", uri)
	}

	return fmt.Sprintf("Failed to connect to MongoDB at %s: %v\n"+
		"  Remediation:\n"+
		"  - Ensure MongoDB is running and accessible\n"+
		"  - Check the MONGO_URI setting", uri, err)
}

// containsIgnoreCase checks if a string contains a substring (case-insensitive).
func containsIgnoreCase(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
