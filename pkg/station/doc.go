// Package station provides network layers implementing connect.Station:
// a simulated one for development builds and tests, and one driving
// NetworkManager through nmcli.
package station
