package main

const version = "0.1.0"

const (
	successCode             = 0
	configPathErr           = 1
	configLoadErr           = 2
	configGetErr            = 3
	loggerErr               = 4
	transactionsDatabaseErr = 5
	ecomplusErr             = 6
	paghiperErr             = 7
)
