package main

import (
	"github.com/spf13/cobra"

	"cloudsim/internal/dashboard"
)

var dashboardOutDir string

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Render Grafana dashboards from templates",
	Long:  "dashboard renders the Grafana dashboard templates with datasource UIDs taken from the environment.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return dashboard.Render(dashboardOutDir)
	},
}

func init() {
	dashboardCmd.Flags().StringVar(&dashboardOutDir, "out", "build", "Output directory for rendered dashboards")
}
