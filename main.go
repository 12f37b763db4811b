// SPDX-License-Identifier: MPL-2.0

package main

import cmd "github.com/imago-dev/imago/cmd/imago"

func main() {
	cmd.Execute()
}
