// Command bookclub serves the signup book and the operator dashboard.
package main

func main() {
	Execute()
}
