package main

import (
	"fmt"

	"github.com/arctir/nucleus/bootimage"
	"github.com/spf13/cobra"
)

// runFetchInit defines the behavior of running: `nucleusctl fetch-init [repo]`
//
// With no repo argument it prints the embedded default initcode that
// `nucleusctl serve` passes to Boot. With a repo argument it fetches the initcode
// asset from that repository's releases on GitHub.
func runFetchInit(cmd *cobra.Command, args []string) {
	fs := cmd.Flags()
	tag, _ := fs.GetString(tagFlag)
	asset, _ := fs.GetString(assetFlag)

	var repo string
	if len(args) > 0 {
		repo = args[0]
	}

	gm := bootimage.NewGHManager()
	data, err := gm.FetchInitCode(bootimage.FetchInitCodeOpts{
		RepoURL:   repo,
		Tag:       tag,
		AssetName: asset,
	})
	if err != nil {
		outputErrorAndFail(fmt.Sprintf("fetch-init: %s", err))
	}

	fmt.Printf("fetched %d bytes of initcode\n", len(data))
	output(string(data) + "\n")
}
