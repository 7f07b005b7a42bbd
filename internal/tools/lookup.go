// Copyright (c) Microsoft. All rights reserved.

package tools

import (
	"context"
	"fmt"
	"strings"
	"time"

	// Embedded zone database so America/New_York resolves in minimal images.
	_ "time/tzdata"
)

const (
	// supportedCity is the only city the demo lookups know, lower-cased.
	supportedCity = "new york"
	newYorkZone   = "America/New_York"

	weatherReport = "The weather in New York is sunny with a temperature of 25 degrees Celsius (41 degrees Fahrenheit)."

	// TimeLayout renders e.g. "2025-01-15 10:30:00 EST-0500".
	TimeLayout = "2006-01-02 15:04:05 MST-0700"
)

// Clock returns the current instant.
type Clock func() time.Time

// CityArgs are the arguments of the city lookups.
type CityArgs struct {
	City string `json:"city" jsonschema:"The name of the city, for example New York."`
}

// Weather returns the weather report for city.
func Weather(city string) Result {
	if strings.ToLower(city) != supportedCity {
		return Failf("Weather information for '%s' is not available.", city)
	}
	return Report{Text: weatherReport}
}

// CurrentTime returns the current time in city according to now. A nil
// clock uses time.Now.
func CurrentTime(city string, now Clock) Result {
	if strings.ToLower(city) != supportedCity {
		return Failf("Sorry, I don't have timezone information for %s.", city)
	}
	loc, err := time.LoadLocation(newYorkZone)
	if err != nil {
		return Failure{Message: err.Error()}
	}
	if now == nil {
		now = time.Now
	}
	return Report{Text: fmt.Sprintf("The current time in %s is %s", city, now().In(loc).Format(TimeLayout))}
}

// WeatherFunc wraps [Weather] as a registry entry.
func WeatherFunc() *Func[CityArgs] {
	return NewFunc(NameWeather,
		"Retrieves the current weather report for a specified city.",
		func(_ context.Context, args CityArgs) Result { return Weather(args.City) },
	)
}

// TimeFunc wraps [CurrentTime] as a registry entry.
func TimeFunc(now Clock) *Func[CityArgs] {
	return NewFunc(NameTime,
		"Returns the current time in a specified city.",
		func(_ context.Context, args CityArgs) Result { return CurrentTime(args.City, now) },
	)
}
