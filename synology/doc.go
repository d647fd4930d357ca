// Package synology provides a client for the Synology Download Station web
// API.
//
// Only the task calls needed to manage torrent retention are covered:
// listing tasks with their detail and transfer information, deleting and
// resuming tasks. A session is opened on first use and closed by Close.
//
// # Usage
//
//	client, err := synology.NewClient(synology.Config{
//		Host:     "192.168.1.10",
//		Port:     5000,
//		Account:  "admin",
//		Password: "secret",
//	}, logger)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer client.Close(ctx)
//
//	tasks, err := client.ListTasks(ctx)
//
// # Error Handling
//
// Failed API calls return *APIError carrying the Synology error code and
// its documented meaning. Per task failures of delete and resume are joined
// into a single error.
package synology
