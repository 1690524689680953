// SPDX-License-Identifier: MPL-2.0

package main

import cmd "github.com/arpitjain799/envmatrix/cmd/envmatrix"

func main() {
	cmd.Execute()
}
