package urls

// Documentation URLs for guides and troubleshooting

// FrigateDocs is the entry point for the Frigate NVR documentation,
// covering installation, configuration, and day-to-day operation.
const FrigateDocs = "https://docs.frigate.video/"

// FrigateConfigReference is the full reference for the Frigate
// configuration file, listing every section and option.
const FrigateConfigReference = "https://docs.frigate.video/configuration/reference"

// FrigateCameraSetup is the guide for adding cameras to Frigate,
// including stream selection and restream configuration.
const FrigateCameraSetup = "https://docs.frigate.video/configuration/cameras"

// DockerInstallGuide is the official Docker Engine installation guide
// for Ubuntu, useful when the automated install needs troubleshooting.
const DockerInstallGuide = "https://docs.docker.com/engine/install/ubuntu/"

// MemryXDeveloperHub is the MemryX developer portal, with driver
// downloads, SDK documentation, and accelerator troubleshooting.
const MemryXDeveloperHub = "https://developer.memryx.com/"
