/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package main

import (
	"github.com/jacques-n/parquet-mr/cmd/pagecodec/cmd"
	"github.com/jacques-n/parquet-mr/pkg/di"
)

func main() {
	// Initialize dependency injection container
	container := di.NewContainer()

	// Inject dependencies into cmd package
	cmd.SetContainer(container)

	cmd.Execute()
}
