// Package testaudio builds audio fixtures for tests.
package testaudio
