package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"contendq/internal/dummy"
)

var dummyCmd = &cobra.Command{
	Use:   "dummy",
	Short: "Run an in-memory stand-in of the allocation service",
	RunE: func(cmd *cobra.Command, args []string) error {
		port, _ := cmd.Flags().GetInt("port")
		basePath, _ := cmd.Flags().GetString("base-path")
		jitter, _ := cmd.Flags().GetDuration("jitter")

		srv := dummy.Start(dummy.ServerConfig{Port: port, BasePath: basePath, Jitter: jitter})

		<-cmd.Context().Done()
		fmt.Println("\n🛑 Shutting down dummy server")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(ctx)
	},
}

func init() {
	dummyCmd.Flags().IntP("port", "p", 8000, "Port to run dummy server on")
	dummyCmd.Flags().String("base-path", "/siamMPL", "Path prefix for every endpoint")
	dummyCmd.Flags().Duration("jitter", 0, "Add a random delay up to this long to every response")
}
