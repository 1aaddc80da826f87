package game

import "backend/internal/models"

// DefaultCities returns the initial world city set written by the init
// endpoint and the seeder. Coordinates and starting brightness are part of
// the deployed record format; keys are stable identifiers and must never
// change once a store has been initialized.
func DefaultCities() models.CitySet {
	return models.CitySet{
		"beijing":      {Name: "北京", Lat: 39.9042, Lng: 116.4074, Brightness: 100},
		"shanghai":     {Name: "上海", Lat: 31.2304, Lng: 121.4737, Brightness: 100},
		"guangzhou":    {Name: "广州", Lat: 23.1291, Lng: 113.2644, Brightness: 100},
		"shenzhen":     {Name: "深圳", Lat: 22.5431, Lng: 114.0579, Brightness: 100},
		"chengdu":      {Name: "成都", Lat: 30.5728, Lng: 104.0668, Brightness: 100},
		"hangzhou":     {Name: "杭州", Lat: 30.2741, Lng: 120.1551, Brightness: 100},
		"wuhan":        {Name: "武汉", Lat: 30.5928, Lng: 114.3055, Brightness: 100},
		"xian":         {Name: "西安", Lat: 34.3416, Lng: 108.9398, Brightness: 100},
		"tokyo":        {Name: "Tokyo", Lat: 35.6762, Lng: 139.6503, Brightness: 100},
		"osaka":        {Name: "Osaka", Lat: 34.6937, Lng: 135.5023, Brightness: 100},
		"seoul":        {Name: "Seoul", Lat: 37.5665, Lng: 126.9780, Brightness: 100},
		"singapore":    {Name: "Singapore", Lat: 1.3521, Lng: 103.8198, Brightness: 100},
		"bangkok":      {Name: "Bangkok", Lat: 13.7563, Lng: 100.5018, Brightness: 100},
		"mumbai":       {Name: "Mumbai", Lat: 19.0760, Lng: 72.8777, Brightness: 100},
		"delhi":        {Name: "Delhi", Lat: 28.7041, Lng: 77.1025, Brightness: 100},
		"dubai":        {Name: "Dubai", Lat: 25.2048, Lng: 55.2708, Brightness: 100},
		"london":       {Name: "London", Lat: 51.5074, Lng: -0.1278, Brightness: 100},
		"paris":        {Name: "Paris", Lat: 48.8566, Lng: 2.3522, Brightness: 100},
		"berlin":       {Name: "Berlin", Lat: 52.5200, Lng: 13.4050, Brightness: 100},
		"madrid":       {Name: "Madrid", Lat: 40.4168, Lng: -3.7038, Brightness: 100},
		"rome":         {Name: "Rome", Lat: 41.9028, Lng: 12.4964, Brightness: 100},
		"moscow":       {Name: "Moscow", Lat: 55.7558, Lng: 37.6173, Brightness: 100},
		"amsterdam":    {Name: "Amsterdam", Lat: 52.3676, Lng: 4.9041, Brightness: 100},
		"newyork":      {Name: "New York", Lat: 40.7128, Lng: -74.0060, Brightness: 100},
		"losangeles":   {Name: "Los Angeles", Lat: 34.0522, Lng: -118.2437, Brightness: 100},
		"chicago":      {Name: "Chicago", Lat: 41.8781, Lng: -87.6298, Brightness: 100},
		"toronto":      {Name: "Toronto", Lat: 43.6532, Lng: -79.3832, Brightness: 100},
		"sanfrancisco": {Name: "San Francisco", Lat: 37.7749, Lng: -122.4194, Brightness: 100},
		"saopaulo":     {Name: "São Paulo", Lat: -23.5505, Lng: -46.6333, Brightness: 100},
		"buenosaires":  {Name: "Buenos Aires", Lat: -34.6037, Lng: -58.3816, Brightness: 100},
		"sydney":       {Name: "Sydney", Lat: -33.8688, Lng: 151.2093, Brightness: 100},
		"melbourne":    {Name: "Melbourne", Lat: -37.8136, Lng: 144.9631, Brightness: 100},
		"cairo":        {Name: "Cairo", Lat: 30.0444, Lng: 31.2357, Brightness: 100},
		"lagos":        {Name: "Lagos", Lat: 6.5244, Lng: 3.3792, Brightness: 100},
	}
}
