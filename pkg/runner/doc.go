/*
Package runner drives a conversation from a terminal.

It prints messages as the session reveals them, numbers the buttons of the
latest actionable message and turns typed lines into interactions:

	/1            press button 1
	/click <a>    dispatch a raw action string
	/simulate <i> connect integration i locally
	/return <ids> report an external return (comma-separated ids)
	/appfirst     ask for the app-first flow
	/quit         leave

Anything else is sent as a free-text message.
*/
package runner
