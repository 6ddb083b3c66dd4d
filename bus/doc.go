// Package bus is a thin typed proxy over NetworkManager on D-Bus.
//
// It covers exactly what the wireless client needs: the WirelessEnabled
// property, the wireless device's access points and scan trigger, the
// settings store's saved connections, and connection activation. Every
// method is a single round trip or a short fixed sequence and takes a
// context that bounds it.
package bus
