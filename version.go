package main

// Version of the cutarelease CLI.
var Version = "1.0.7"
