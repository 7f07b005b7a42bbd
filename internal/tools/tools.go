// Copyright (c) Microsoft. All rights reserved.

// Package tools holds the functions agents can call and the registry hosts
// bind them from.
package tools

// Registered tool names.
const (
	NameWeather = "get_weather"
	NameTime    = "get_current_time"
	NameSearch  = "context7_search"
)

// Default returns a registry with the weather, time and search tools.
func Default(search *SearchClient, now Clock) *Registry {
	r, err := NewRegistry(WeatherFunc(), TimeFunc(now), SearchFunc(search))
	if err != nil {
		// Names are constants; a failure here is a programming error.
		panic(err)
	}
	return r
}
