// Package launchlibrary is a small client for the Launch Library 2 REST API
// (https://thespacedevs.com/llapi). It fetches the upcoming launches list and maps
// the provider payload into domain.Launch values for the local cache.
package launchlibrary
